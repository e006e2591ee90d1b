// Package file keeps the user-editable pieces of Palimpsest under
// ~/.palimpsest: config.toml (ConfigStore), prompts/*.txt (PromptStore)
// and gazetteer.yaml (Gazetteer). A missing file means defaults, not an
// error.
package file
