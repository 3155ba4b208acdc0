// Package manifest parses the declarative TOML metadata files scattered
// through a catalog. A manifest applies to its directory and everything
// below it; nearer manifests override farther ones field-by-field, so a
// catalog-level artist name can be refined per release without repetition.
package manifest
