/*
Package collection defines the inputs, outputs and pluggable policies of a
dependency collection.

A Request names what to collect and a Session names how. The four
capabilities of a session are derived node by node while the collector
descends:

	DependencyManager    overrides version, scope, optional, properties, exclusions
	DependencySelector   drops discovered dependencies
	DependencyTraverser  vetoes reading a dependency's descriptor
	VersionFilter        narrows the candidates of a version range

Built-in implementations live in the manager, selector, traverser and filter
subpackages.

The Result holds the collected tree, the cycles that were cut and every
recoverable failure. Failures are also reported through CollectionError so
that errors.Is and errors.As reach the individual causes:

	res, err := c.Collect(ctx, session, req)
	var derr *collection.DescriptorError
	if errors.As(err, &derr) {
		log.Printf("missing descriptor for %s", derr.Artifact)
	}
*/
package collection
