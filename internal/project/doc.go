// Package project holds the plugin name and project root shared by every
// scaffolding step, and lays down the base project with the Flutter SDK.
package project
