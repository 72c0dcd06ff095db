//go:build standalone

package main

const edition = "standalone"
