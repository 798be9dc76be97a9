// Package password hashes principal passwords with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so the
// Engine can re-hash them after the next successful login. Length policy is
// enforced here; everything else about registration is the Engine's concern.
package password
