// Package cli provides the depcollect command-line interface.
//
// # Commands
//
// collect: Collect a dependency tree from a local repository or a server
//
//	depcollect collect \
//		-repo ./descriptors \
//		-root org.example:app:1.0 \
//		-manager transitive \
//		-format text
//
//	depcollect collect -server http://localhost:8080 -request request.yaml -format cytoscape
//
// A request file has the same shape as the body of POST /v1/collect:
//
//	root:
//	  coords: org.example:app:1.0
//	managedDependencies:
//	  - coords: org.example:util:2.1
//	session:
//	  verbose: true
//
// inspect: Print one descriptor as YAML
//
//	depcollect inspect -repo ./descriptors org.example:app:1.0
//
// publish: Store a descriptor, optionally recording its version in a SQL index
//
//	depcollect publish -repo ./descriptors -file app-1.0.yaml -sql-dsn postgres://localhost/depcollect
//
// version: Print the build version
package cli
