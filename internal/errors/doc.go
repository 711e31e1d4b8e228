// Package errors provides the coded error catalogue used by the routetable
// CLI.
//
// Table construction defects from the router (R001-R007), resolution and
// navigation failures (R101-R103) and configuration problems (C001-C003)
// each map to a registered template with a short message, an explanation
// and, where one helps, a hint and an example declaration.
//
// # Usage
//
//	table, err := router.New(routes)
//	var te *router.TableError
//	if errors.As(err, &te) {
//	    for _, e := range rterrors.FromDefects(te.Defects) {
//	        rterrors.PrintError(e)
//	    }
//	}
//
// Output:
//
//	ERROR R001: Duplicate sibling route
//
//	  /mypage/post
//
//	  sibling "/mypage/post" already matches the same paths
//
//	  Hint: Remove one of the entries or give them different static segments.
package errors
