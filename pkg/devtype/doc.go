// Package devtype loads the I2C device type database and catalogues its
// records.
//
// The database is a JSON (or YAML) document with a top-level devTypes object
// keyed by device type name. Declaration order is significant: a record's
// index in the Catalog is its position in devTypes, and generated tables refer
// to records by that index.
//
//	{
//	  "devTypes": {
//	    "VCNL4040": {
//	      "deviceType": "VCNL4040",
//	      "addresses": "0x60",
//	      "detectionValues": "0x0c=0b100001100000XXXX",
//	      "initValues": "0x041007=&0x030e08=&0x000000=",
//	      "pollingConfigJson": {"c": "0x08=r2&0x09=r2&0x0a=r2", "i": 200, "s": 10},
//	      "devInfoJson": {"name": "VCNL4040", "desc": "Prox&ALS"},
//	      "scanPriority": "high"
//	    }
//	  }
//	}
//
// scanPriority may be absent, a 1-based integer, or one of "high", "medium"
// and "low"; see ScanPriority.
package devtype
