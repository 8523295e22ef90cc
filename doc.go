// Package accounts provides a credential and session service: account
// registration, password login with stateless JWT sessions, email
// verification, and password reset, each driven by one-time codes delivered
// over email.
//
// Sessions:
//   - TokenService mints HS256 JWTs with a seven day expiry. The HTTP layer
//     carries them in an httpOnly cookie; logout clears the cookie only, a
//     previously copied token stays valid until it expires.
//
// One-time codes:
//   - Codes are six uniformly random digits. Verification codes live for 24
//     hours, reset codes for 15 minutes. A mismatched code is rejected before
//     the expiry window is consulted, and an expired code is purged from the
//     record when detected.
//
// Commands:
//   - Each mutation is a message plus handler pair (RegisterAccountMessage,
//     ConfirmVerificationMessage, and so on). Handlers run their database work
//     inside a transaction through RepositoryManager.RunInTx.
package accounts
