// Package dirtar provides a small directory browsing library: it resolves
// request URLs against a sandboxed root, lists directories, serves files, and
// packs whole directory trees into tar archives on demand.
//
// # Key Components
//
//   - Service: Main service combining file storage, the archive builder, and the scratch registry
//   - FileStorage: Interface for sandboxed file access (see the filesystem package)
//   - Archiver: Interface for building request-scoped tar archives (see the archive package)
//   - ArchiveRepo: Interface for persisting scratch archive records (PostgreSQL, SQLite)
//
// # Request Classes
//
// Every request URL resolves to exactly one class:
//
//   - KindArchive: "/docs.tar?download" or "/-/archive/docs" packs the directory docs
//   - KindDirectory: the path names a directory and is rendered as a listing
//   - KindFile: the path names a regular file and is streamed as-is
//
// Paths that do not exist yield ErrNotFound and paths that try to leave the
// root yield ErrInvalidInput.
//
// # Example Usage
//
//	service, err := dirtar.NewService(storage, builder, repo, dirtar.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req, err := service.Resolve(ctx, r.URL)
//	if err != nil {
//	    return err
//	}
//
//	if req.Kind == dirtar.KindArchive {
//	    archive, content, err := service.BuildArchive(ctx, req.Path)
//	    // stream content, then Close it to drop the scratch file
//	}
//
// See the http package for the HTTP surface and the database packages for
// scratch registry implementations.
package dirtar
