package similarity

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/csirtlab/hostrisk/pkg/cpe"
)

// identGen produces well-formed identifiers with lowercase alpha fields.
func identGen() gopter.Gen {
	field := gen.RegexMatch("[a-z]{1,8}")
	return gopter.CombineGens(field, field, field).Map(func(vals []any) cpe.Identifier {
		return cpe.Identifier{
			Part:    cpe.PartOS,
			Vendor:  vals[0].(string),
			Product: vals[1].(string),
			Version: vals[2].(string),
		}
	})
}

// TestComparatorInvariants verifies the field-rule invariants that must hold
// for any identifier pair.
func TestComparatorInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)
	weights := DefaultFieldWeights()

	properties.Property("identical identifiers score 1.0 and are never critical", prop.ForAll(
		func(id cpe.Identifier) bool {
			cmp := compareIdentifiers(id, id, weights)
			return cmp.Score == 1.0 && !cmp.Critical
		},
		identGen(),
	))

	properties.Property("version-only difference stays in (0,1) and non-critical", prop.ForAll(
		func(id cpe.Identifier, otherVersion string) bool {
			if id.Version == otherVersion {
				return true
			}
			other := id
			other.Version = otherVersion
			cmp := compareIdentifiers(id, other, weights)
			return cmp.Score > 0 && cmp.Score < 1 && !cmp.Critical
		},
		identGen(),
		gen.RegexMatch("[a-z0-9]{1,6}"),
	))

	properties.Property("vendor difference is critical and scores below the matching pair", prop.ForAll(
		func(id cpe.Identifier, otherVendor string) bool {
			if id.Vendor == otherVendor {
				return true
			}
			other := id
			other.Vendor = otherVendor
			mismatch := compareIdentifiers(id, other, weights)
			match := compareIdentifiers(id, id, weights)
			return mismatch.Critical && mismatch.Score < match.Score
		},
		identGen(),
		gen.RegexMatch("[a-z]{1,8}"),
	))

	properties.Property("scores are symmetric", prop.ForAll(
		func(a, b cpe.Identifier) bool {
			ab := compareIdentifiers(a, b, weights)
			ba := compareIdentifiers(b, a, weights)
			return ab.Score == ba.Score && ab.Critical == ba.Critical
		},
		identGen(),
		identGen(),
	))

	properties.Property("scores stay within [0,1]", prop.ForAll(
		func(a, b cpe.Identifier) bool {
			cmp := compareIdentifiers(a, b, weights)
			return cmp.Score >= 0 && cmp.Score <= 1
		},
		identGen(),
		identGen(),
	))

	properties.TestingRun(t)
}

// TestParsedPairGrid spot-checks the scoring table for a handful of concrete
// pairs, anchored at the attacked-host scenario.
func TestParsedPairGrid(t *testing.T) {
	weights := DefaultFieldWeights()

	ref, err := cpe.Parse("cpe:/o:acme:linux:5.1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cases := []struct {
		in       string
		score    float64
		critical bool
	}{
		{"cpe:/o:acme:linux:5.1", 1.0, false},
		{"cpe:/o:acme:linux:5.4", 0.8, false},
		{"cpe:/o:acme:linux", 0.9, false},
		{"cpe:/o:acme:windows:10", 0.0, true},
		{"cpe:/o:initech:linux:5.1", 0.0, true},
	}
	for _, tc := range cases {
		cand, err := cpe.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.in, err)
		}
		cmp := compareIdentifiers(ref, cand, weights)
		if fmt.Sprintf("%.4f", cmp.Score) != fmt.Sprintf("%.4f", tc.score) || cmp.Critical != tc.critical {
			t.Errorf("%s: expected (%v, %v), got (%v, %v)", tc.in, tc.score, tc.critical, cmp.Score, cmp.Critical)
		}
	}
}
