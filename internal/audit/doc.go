// Package audit publishes mutation events to a redis pub/sub channel so
// external log processors can consume them. Publishing never blocks or
// fails the mutation that triggered it.
package audit
