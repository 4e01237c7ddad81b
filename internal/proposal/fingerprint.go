package proposal

import (
	"crypto/sha256"
	"encoding/hex"
)

// CodeHash returns the content fingerprint of a code change: a SHA-256
// digest over before and after joined with a separator so that swapping
// the two sides produces a different hash.
func CodeHash(codeBefore, codeAfter string) string {
	return digest(codeBefore + "|" + codeAfter)
}

// SemanticHash returns the same-intent fingerprint: agent, target path and
// both code sides. Two agents proposing the identical change to the same
// file collide here even when their surrounding metadata differs.
func SemanticHash(agent AgentType, filePath, codeBefore, codeAfter string) string {
	return digest(string(agent) + "|" + filePath + "|" + codeBefore + "|" + codeAfter)
}

// Fingerprint fills in any missing hashes on the draft.
func (d *Draft) Fingerprint() {
	if d.CodeHash == "" {
		d.CodeHash = CodeHash(d.CodeBefore, d.CodeAfter)
	}
	if d.SemanticHash == "" {
		d.SemanticHash = SemanticHash(d.AgentType, d.FilePath, d.CodeBefore, d.CodeAfter)
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
