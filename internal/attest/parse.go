package attest

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	intoto "github.com/in-toto/attestation/go/v1"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/secure-systems-lab/go-securesystemslib/dsse"
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/foundry-rs/foundryup/internal/apperr"
)

const (
	envelopeSchemaURL = "https://foundryup.local/schemas/attestation-envelope.json"

	// Sigstore bundles carry a versioned media type, e.g. "...bundle.v0.3+json"
	sigstoreBundleMediaType = "application/vnd.dev.sigstore.bundle"
)

//go:embed envelope.schema.json
var envelopeSchemaJSON []byte

var envelopeSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(envelopeSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse envelope schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(envelopeSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add envelope schema: %w", err)
	}
	return c.Compile(envelopeSchemaURL)
})

// ParseArtifact decodes a downloaded attestation artifact into a Bundle.
//
// The artifact is either a sigstore bundle (identified by its mediaType) or
// a JSON object holding a DSSE envelope, directly or under "dsseEnvelope".
// The envelope payload is a base64 in-toto statement whose subjects map
// binary names to sha256 digests. Subjects without a sha256 digest are
// left out of the Bundle. Any other deviation from that shape is an
// apperr.ErrIntegrity.
func ParseArtifact(data []byte) (Bundle, error) {
	if err := validateShape(data); err != nil {
		return nil, apperr.Integrity("validate attestation", err)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, apperr.Integrity("decode attestation envelope", err)
	}

	payload, err := env.DecodeB64Payload()
	if err != nil {
		return nil, apperr.Integrity("decode attestation payload", err)
	}

	b, err := parseStatement(payload)
	if err != nil {
		return nil, apperr.Integrity("parse attestation statement", err)
	}
	return b, nil
}

func validateShape(data []byte) error {
	schema, err := envelopeSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return schema.Validate(inst)
}

type artifactHeader struct {
	MediaType    string          `json:"mediaType"`
	DSSEEnvelope json.RawMessage `json:"dsseEnvelope"`
}

func decodeEnvelope(data []byte) (*dsse.Envelope, error) {
	var header artifactHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, err
	}

	if strings.HasPrefix(header.MediaType, sigstoreBundleMediaType) {
		var b bundle.Bundle
		if err := b.UnmarshalJSON(data); err != nil {
			return nil, fmt.Errorf("sigstore bundle: %w", err)
		}
		env, err := b.Envelope()
		if err != nil {
			return nil, fmt.Errorf("sigstore bundle: %w", err)
		}
		return env.Envelope, nil
	}

	raw := data
	if len(header.DSSEEnvelope) > 0 {
		raw = header.DSSEEnvelope
	}
	var env dsse.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func parseStatement(payload []byte) (Bundle, error) {
	var stmt intoto.Statement
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(payload, &stmt); err != nil {
		return nil, err
	}

	subjects := stmt.GetSubject()
	if len(subjects) == 0 {
		return nil, errors.New("statement has no subjects")
	}

	b := make(Bundle, len(subjects))
	for _, s := range subjects {
		name := s.GetName()
		if name == "" {
			return nil, errors.New("subject without a name")
		}
		sum, ok := s.GetDigest()["sha256"]
		if !ok {
			// Verify reports the binary as StatusMissingDigest.
			continue
		}
		digest := strings.ToLower(sum)
		if !isSHA256Hex(digest) {
			return nil, fmt.Errorf("subject %s: invalid sha256 digest %q", name, digest)
		}
		b[name] = digest
	}
	return b, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
