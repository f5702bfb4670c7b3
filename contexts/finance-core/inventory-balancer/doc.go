// Package inventorybalancer contains the JuicerScribe working-capital video
// inventory balancer.
//
// The balancer keeps the monetary value of AVAILABLE transcription inventory
// near a target derived from the current capital position. The module keeps
// domain/application logic decoupled from runtime/platform concerns through
// ports and adapter composition.
package inventorybalancer
