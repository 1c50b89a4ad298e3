/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import "strings"

// resolveRootReferenceValue resolves a "$$root"-prefixed token against root,
// by rewriting it to the path it refers to and running a strict GET:
//
//	"$$root"            -> "."
//	"$$root.<path>"      -> "<path>"
//	"$$root|<pipeline>"  -> ".|<pipeline>"
func resolveRootReferenceValue(root Value, token string) (Value, error) {
	path := rootReferenceToPath(token)
	return Get(root, path, WithStrict(true))
}

func rootReferenceToPath(token string) string {
	switch {
	case token == "$$root":
		return "."
	case strings.HasPrefix(token, "$$root."):
		return token[len("$$root."):]
	case strings.HasPrefix(token, "$$root|"):
		return "." + token[len("$$root"):]
	default:
		return token
	}
}
