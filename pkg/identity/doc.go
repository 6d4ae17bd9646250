// Package identity allocates and tracks runtime identities for arbitrary
// objects without extending their lifetime.
//
// Responsibilities:
//   - ID is a generational slot reference: the arena slot index plus a random
//     nonzero generation. Retired slots are recycled with a fresh generation,
//     so a stale ID can never alias a newer object.
//   - Registry owns the arena, a weak back-reference per registered object,
//     and the unreachability callbacks the lifecycle layer installs.
//   - IDs embed the minting registry's context UUID. A registry refuses IDs
//     minted by another context, which keeps identities meaningless across
//     duplicated or isolated execution contexts.
//
// The registry never holds a strong reference to a registered object. Object
// resolution goes through weak pointers, and unreachability is delivered via
// the runtime finalizer machinery so the callback still receives the
// identity-valid object before its memory is reclaimed.
package identity
