// Package codec turns records and other values into bytes.
//
// Records and change records are stored as MessagePack, using the records'
// json struct tags so one set of field names serves both formats. Output is
// deterministic: struct fields encode in declaration order and map keys are
// sorted, so equal values always produce equal bytes.
//
// MarshalCanonical renders JSON with sorted keys and NFC-normalized strings
// for golden traces and CLI output.
package codec
