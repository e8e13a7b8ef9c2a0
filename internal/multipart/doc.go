// Package multipart decodes multipart/form-data bodies into parts.
//
// Ownership boundary:
//   - Part.Name, Part.Filename and Part.ContentType are copies.
//   - Part.Data is a sub-slice of the decoded input. It is only valid while the caller
//     keeps that buffer alive and unmodified; use Part.Clone or Detach to copy it out.
//
// The decoder is a pure function over its input and is safe for concurrent use.
package multipart
