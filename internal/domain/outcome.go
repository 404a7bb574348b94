package domain

// PathOutcome is the terminal result of one simulated path.
type PathOutcome struct {
	NetValue   float64 // ending portfolio value minus loan owed at exit
	Liquidated bool    // true if the path ended via forced liquidation
	ExitYear   int     // in [1, duration]; < duration implies Liquidated
}
