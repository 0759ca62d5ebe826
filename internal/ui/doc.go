// Package ui implements an interactive terminal browser using bubbletea's Elm architecture.
//
// The browser walks the catalog in three levels:
//  1. [CategoryView] : Pick one of the catalog categories
//  2. [ItemView] : Browse the category's items, paging with n and reloading with r
//  3. [ChildView] : Browse the tracks under an artist, album, playlist or mix
//
// [ConnectView] runs the device authorization flow and shows the code to enter along with polling progress, which
// flows through a channel from the flow without blocking it.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
