package commentary

var ballPhrases = map[string][]string{
	"dot": {
		"Dot ball",
		"{batter} defends solidly",
		"No run there",
		"{batter} plays it straight to the fielder",
		"{bowler} beats the bat!",
	},
	"single": {
		"{batter} takes a quick single",
		"{batter} pushes it for one",
		"They scamper through for a single",
		"{batter} works it away for one run",
	},
	"two": {
		"{batter} finds the gap for two",
		"They come back for the second!",
		"Good placement, two runs",
	},
	"three": {
		"{batter} finds the gap, they run three!",
		"Superb running, three runs",
	},
	"four": {
		"FOUR! What a shot from {batter}!",
		"BOUNDARY! {batter} finds the rope!",
		"FOUR! Beautifully timed by {batter}!",
		"FOUR! {batter} pierces the field!",
	},
	"six": {
		"SIX! {batter} sends it into the stands!",
		"MAXIMUM! What a hit from {batter}!",
		"SIX! {batter} launches it over the boundary!",
	},
	"wide": {
		"Wide! {bowler} strays down leg",
		"Wide ball, that's wayward from {bowler}",
		"Wide! Poor line from {bowler}",
	},
	"noBall": {
		"No ball! {bowler} has overstepped",
		"No ball! Free hit coming up!",
		"No ball from {bowler}",
	},
	"bye": {
		"Byes! The keeper misses it",
		"{runs} byes, extras mounting up",
	},
	"legBye": {
		"Leg bye! Off the pads",
		"{runs} leg byes",
	},
}

var wicketPhrases = map[string][]string{
	"Bowled": {
		"BOWLED! {bowler} crashes through the defences!",
		"TIMBER! {outPlayer} is bowled by {bowler}!",
		"BOWLED! {outPlayer}'s stumps are shattered!",
	},
	"Caught": {
		"OUT! {outPlayer} is caught by {fielder}!",
		"CAUGHT! {fielder} takes a brilliant catch!",
		"OUT! {outPlayer} holes out to {fielder}!",
	},
	"Caught Behind": {
		"OUT! Caught behind! {outPlayer} edges it to {fielder}!",
		"CAUGHT BEHIND! {outPlayer} nicks it!",
	},
	"LBW": {
		"OUT! LBW! {outPlayer} is trapped in front!",
		"LBW! {bowler} gets the breakthrough!",
	},
	"Run Out": {
		"RUN OUT! {outPlayer} is short of the crease!",
		"OUT! Direct hit from {fielder}! {outPlayer} is gone!",
	},
	"Stumped": {
		"STUMPED! {outPlayer} is out of the crease!",
		"OUT! Lightning quick work from {fielder}!",
	},
}
