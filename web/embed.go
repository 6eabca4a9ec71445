package web

import "embed"

// Static embeds the login page assets served at the site root.
//
//go:embed static/*
var Static embed.FS
