// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile lifecycle from pipeline
// documents to a rendered backend manifest, decoupled from any specific
// entrypoint like a CLI.
package app
