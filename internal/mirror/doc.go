// Package mirror publishes the current last price of every instrument touched
// by a completed batch run to Redis, so readers outside the process can see it.
//
// Keys are <prefix><instrument>; values are the JSON encoding of the market's
// current record for that instrument. The mirror never writes a record older
// than what the market holds.
package mirror
