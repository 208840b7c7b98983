// Package healthcheck probes every execution node periodically with an
// eth_syncing call and tracks each node's state: online when the node
// answers `false`, syncing when it answers a sync-progress object, offline
// when it does not answer at all. Health never gates the fan-out itself --
// every configured node always gets a dispatch entry -- it feeds the status
// endpoint, metrics and logs.
package healthcheck
