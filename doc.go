/*
Package vcdtrace decodes Value Change Dump traces of hardware designs.

A decoding Session receives scope and signal declarations, then timestamped
value changes, and builds:

  - a scope tree with canonical slash separated path names,
  - a time indexed value store that can be queried for the value of any
    signal at any point in time,
  - a trace of method calls reconstructed from guarded atomic action
    naming conventions: a method "m" has a ready signal "m__RDY", an enable
    signal "m__ENA" and parameter signals "m$param". A call is reported
    whenever both ready and enable are high at the end of a cycle.

The internal/vcd package parses the textual VCD format and drives a Session.
*/
package vcdtrace
