package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// AWS_REGION is the region the stack is created in, resolved at deploy time.
var AWS_REGION = intrinsics.AWS_REGION
