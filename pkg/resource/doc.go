// Package resource resolves template packages to their resource trees.
//
// A template package is identified by a string id (for example "Acme.Site").
// A Loader maps the id to an fs.FS rooted at the package's resources, so the
// rest of the system can address files with package-relative paths such as
// "Private/EmailTemplates/welcome.html".
//
// Three loaders are provided:
//
//   - DirLoader reads <root>/<package>/Resources from the local filesystem.
//   - MapLoader serves in-memory trees, typically embed.FS or fstest.MapFS.
//   - S3Loader reads objects under <prefix>/<package>/Resources/ from an
//     S3-compatible bucket.
//
// Loaders return ErrPackageNotFound when the package does not exist.
package resource
