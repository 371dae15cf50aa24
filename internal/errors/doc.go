// Package errors provides structured, actionable error messages for the
// saascannon command.
//
// Each error has a code (e.g., "S121") that maps to a short message, a
// detailed explanation and a documentation URL. Errors can carry a file
// location, shown with the surrounding lines.
//
// # Usage
//
//	err := errors.New("S120").
//	    WithLocation("saascannon.yaml", 4, 3).
//	    WithSuggestion("Indent nested keys with spaces")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S120: Invalid configuration file
//	//
//	//   saascannon.yaml:4:3
//	//
//	//        2 │ saascannon:
//	//        3 │   domain: acme.saascannon.app
//	//   →    4 │ 	clientId: spa_123
//	//          │   ^
//	//
//	//   Hint: Indent nested keys with spaces
//	//
//	//   Learn more: https://docs.saascannon.com/errors/S120
//
// FromAuth turns errors from the saascannon and spa packages into coded
// errors.
package errors
