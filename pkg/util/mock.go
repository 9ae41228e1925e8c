package util

import "github.com/influxdata/influxdb-client-go/api/write"

// NoopWriteAPI satisfies api.WriteAPI and discards everything, for runs
// without an InfluxDB server.
type NoopWriteAPI struct{}

func (m *NoopWriteAPI) WriteRecord(line string) {}

func (m *NoopWriteAPI) WritePoint(point *write.Point) {}

func (m *NoopWriteAPI) Flush() {}

func (m *NoopWriteAPI) Close() {}

// Errors returns nil; a receive from it blocks forever.
func (m *NoopWriteAPI) Errors() <-chan error { return nil }
