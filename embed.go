package inkpress

import "embed"

// EmbeddedAssets contains static assets shipped with the site:
// comment.js, the comment form script.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
