// Package app declares the application's route table and builds the
// component loader it resolves against.
package app
