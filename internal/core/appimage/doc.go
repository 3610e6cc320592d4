// Package appimage holds the release level rules of the finder: which assets
// are AppImages for a target architecture, which releases are rolling CI
// builds, and how an asset is turned into an architecture, a four component
// version and a package id.
//
// Everything here is pure and safe for concurrent use
package appimage
