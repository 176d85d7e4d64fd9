// Package query checks the surface syntax of a search query string before it
// is handed to a query parser.
//
// The checker does not build a query tree. It runs a fixed, ordered list of
// whole-string rules and reports the first one that fails:
//
//	res := query.Validate(`title:"go modules" +tutorial`)
//	if !res.Accepted() {
//		fmt.Println(res.Reason)
//	}
//
// Every rule is matched with the standard regexp package, which runs in time
// linear in the input, so adversarial queries cannot trigger backtracking
// blowups.
package query
