// Package tablegen renders compiled device type tables as source text.
//
// The primary output is a C++ header consumed by the RaftI2C bus scanner.
// Every record field is written as a raw string literal R"(...)" so that
// JSON punctuation needs no escaping. A field that contains )" gets a
// delimited literal such as R"x(...)x" instead. The header declares, in order:
//
//   - baseDevTypeRecords: the records in catalog order
//   - BASE_DEV_INDEX_BY_ARRAY_MIN_ADDR / _MAX_ADDR: lookup bounds
//   - baseDevTypeCountByAddr: number of device types per address
//   - baseDevTypeIndexByAddr_0xHH: record indices for each used address
//   - baseDevTypeIndexByAddr: per-address pointers, nullptr when unused
//   - scanPriority0..2 with their lengths, then scanPriorityLists,
//     scanPriorityListLengths and numScanPriorityLists
//
// The same tables can be generated as Go source, and a CBOR Manifest
// summarises any generated artifact for build tooling.
package tablegen
