// Package testutil provides internal helpers shared by the package tests,
// most notably a fluent message builder keeping test setup concise.
package testutil
