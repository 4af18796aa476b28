// Package confloader loads configuration with koanf and watches the
// configuration file with fsnotify.
//
// Sources, lowest priority first:
//
//  1. Defaults already present in the target struct
//  2. The YAML configuration file
//  3. Environment variables (TEXTNONCE_ prefix)
//  4. Values passed to LoadMap, typically command-line flags
package confloader
