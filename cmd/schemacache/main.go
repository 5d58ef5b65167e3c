// Command schemacache serves a cached, flattened description of a relational
// database catalog and keeps it current as the catalog changes.
package main

func main() {
	Execute()
}
