// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package shamir implements Shamir's threshold secret sharing over a prime
// field GF(p).
//
// A secret s in [0, p) becomes the constant term of a random polynomial
//
//	f(x) = s + a1*x + ... + a(t-1)*x^(t-1)  (mod p)
//
// whose remaining coefficients are drawn uniformly from [0, p) with a
// cryptographically secure reader. Each share is a point (x, f(x)) at a
// distinct non-zero x. Any t shares determine f and therefore s = f(0);
// any t-1 shares are consistent with every possible secret.
//
// # Issuing shares
//
//	session, err := shamir.CreateSession(field.Bits256, true, 3, big.NewInt(25))
//	shares, err := session.GenerateShares(points)
//	modulus := session.Modulus() // store alongside the shares
//	session.Destroy()
//
// # Reconstructing
//
//	secret, err := shamir.ReconstructSecret(modulus, shares)
//
// Reconstruction needs only the modulus and the shares; it never sees the
// session.
//
// # The threshold is not checked at reconstruction
//
// A share is just a point. ReconstructSecret has no way to know the degree
// of the polynomial that produced it, so when it is handed fewer than t
// shares it returns a deterministic value that is NOT the secret, and it
// cannot report an error. Callers must track the threshold themselves and
// refuse to reconstruct below it. The service package does this when the
// share bundle records the threshold.
//
// # Secrets and logging
//
// Nothing in this package logs the secret, a coefficient or a share's y
// value. Session.Destroy zeroes the coefficients held by the session.
package shamir
