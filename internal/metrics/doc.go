// Package metrics implements [dynamo.Metric] observers over triad
// trajectories. Each metric sees every recorded output sample.
package metrics
