// Package model defines the market-mover data shared by the fetcher, the
// poller, the history writer and the CLI renderer.
//
// Backend rows arrive with loosely named fields (current_price or price,
// price_change_percentage_1min or change, ...). Normalize turns them into
// ranked Mover values so downstream code never branches on representation.
package model
