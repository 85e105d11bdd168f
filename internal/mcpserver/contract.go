package mcpserver

// NamingContract describes the image naming and link format rules that
// LLM consumers should follow when inserting or renaming images.
const NamingContract = `# Pictor Image Naming Rules

Every image Pictor writes to the vault follows these rules.

## File names

- Inserted images are named after the note they are inserted into:
  ` + "`" + `{note} {n}.{ext}` + "`" + ` where ` + "`" + `{n}` + "`" + ` is the lowest free counter starting at 1
  (e.g. ` + "`" + `Trip 1.png` + "`" + `, ` + "`" + `Trip 2.png` + "`" + ` for images inserted into ` + "`" + `Trip.md` + "`" + `).
- With the timestamp policy the counter is replaced by a timestamp token
  pattern (default ` + "`" + `YYYYMMDDHHmmss` + "`" + `); a counter is appended only on collision.
- Names are sanitized before use: ` + "`" + `\ / : * ? " < > |` + "`" + ` are stripped and
  whitespace runs collapse to a single space. In aggressive mode diacritics
  are stripped, words are joined with underscores, and the result is
  lowercased (` + "`" + `Caffè & Città` + "`" + ` becomes ` + "`" + `caffe_citta` + "`" + `).
- A name that sanitizes to the empty string is rejected.
- Renames never overwrite: a taken name gets ` + "`" + ` {n}` + "`" + ` appended instead.

## Generic names

These base-name shapes are considered auto-generated and are preselected by
bulk renames:

- ` + "`" + `Pasted image …` + "`" + ` and ` + "`" + `Screenshot …` + "`" + ` prefixes (case-insensitive)
- ` + "`" + `image12` + "`" + `-style stems: image, img, photo, picture, pic + digits
- ` + "`" + `clipboard` + "`" + ` with an optional number
- bare numeric timestamps of 8+ digits

## Links

- Embed links: ` + "`" + `![[path/to/image.png]]` + "`" + `, with optional caption and size
  segments: ` + "`" + `![[image.png|My caption|500]]` + "`" + `. An empty caption before a size
  is written as ` + "`" + `![[image.png||500]]` + "`" + `.
- Inline links: ` + "`" + `![caption](path/to/image.png)` + "`" + `. Spaces in inline targets
  are percent-encoded.
- Shorthand targets (bare file name, with or without extension) resolve to
  the closest vault image with that name.
- Renaming an image rewrites every link that references it, preserving
  captions and sizes.

## Storage

- Uploaded images land in the configured image folder (default
  ` + "`" + `attachments/` + "`" + `, flat).
- Supported extensions: png, jpg, jpeg, gif, webp, bmp, svg, avif, tiff, tif, ico.
- Images no note references are reported by ` + "`" + `scan_orphans` + "`" + ` and are only
  trashed, never deleted.
`
