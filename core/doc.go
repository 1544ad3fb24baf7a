// Package core contains the ledger state machine: role-gated issuance,
// balance movement, signature-authorized meta operations and reservations.
// Storage, transport and queue adapters depend on this package; core must not
// depend on any of them.
package core
