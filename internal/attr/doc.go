// Package attr defines the value types a record attribute may hold.
//
// Value is a small sealed union: String, Int, Float, Bool, Time, Bytes, and
// Ref. Keeping the union closed lets the store map every attribute onto a
// SQLite column without reflection, and gives conversion errors at the API
// boundary instead of at flush time.
//
// Encode renders values as deterministic text for debug dumps: strings are
// NFC normalized, times are UTC RFC 3339, and map-free scalar output keeps
// dumps byte-stable across runs.
package attr
