/*
Package trogen provides the integration kernel for hardware-trojan benchmark
circuits: fixed-width bit-vector registers, a two-phase synchronous
clock/reset scheduler, and the tap machinery that wires covert trojan cores
into otherwise-ordinary peripheral state machines.

A benchmark circuit is built from three pieces: a host state machine (see
package host) implementing a peripheral's legitimate behavior, a trojan core
(see package trojan) with a narrow fixed interface, and the static taps
declared here. Entropy taps expose slices of host registers to the trojan's
inputs; injection taps conditionally substitute the trojan's output into the
host's externally observed outputs. The host commits its legitimate state
every cycle regardless of injection, so the composite looks functionally
ordinary except on the rare cycles the trigger condition holds.
*/
package trogen
