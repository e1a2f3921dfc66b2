// Package history tracks which gallery items each user has viewed.
//
// A view of an item marks the item and all of its ancestor albums as
// viewed in a single transaction, so the browse UI can distinguish albums
// with unseen content. Because cached browse listings embed view state,
// each recorded view also purges the viewer's cached listings for the
// affected directories from the shared key-value store.
package history
