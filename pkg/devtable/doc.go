// Package devtable compiles a device type catalog into the lookup tables
// used by bus scanning firmware.
//
// Two structures are derived from the catalog:
//
//   - Index maps every 7-bit address to the records that may respond there,
//     so firmware can find candidate device types for an address that acks.
//   - Priorities splits the valid operating range into three scan lists.
//     High priority addresses are scanned most often, then medium, then low.
//
// Both are rebuilt from scratch on every compile and are read-only afterwards.
package devtable
