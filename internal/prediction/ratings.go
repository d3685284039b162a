package prediction

// rating captures the attributes the outcome model weighs: overall strength
// (0-100), league ranking (1 = best), and recent form (0-10).
type rating struct {
	Ranking    int
	Strength   float64
	RecentForm float64
	KeyPlayers []string
}

// neutralRating is used for teams the table does not know about.
var neutralRating = rating{Ranking: 50, Strength: 50, RecentForm: 5, KeyPlayers: []string{"their key player"}}

var ratings = map[string]rating{
	// Soccer
	"Real Madrid":         {Ranking: 1, Strength: 95, RecentForm: 8, KeyPlayers: []string{"Kylian Mbappe", "Vinicius Jr."}},
	"Manchester City":     {Ranking: 2, Strength: 94, RecentForm: 9, KeyPlayers: []string{"Erling Haaland", "John Stones"}},
	"Barcelona":           {Ranking: 3, Strength: 92, RecentForm: 8, KeyPlayers: []string{"Lewandowski", "Pedri"}},
	"Liverpool":           {Ranking: 4, Strength: 91, RecentForm: 8, KeyPlayers: []string{"Mohamed Salah", "Virgil van Dijk"}},
	"Bayern Munich":       {Ranking: 5, Strength: 90, RecentForm: 8, KeyPlayers: []string{"Harry Kane", "Joshua Kimmich"}},
	"Arsenal":             {Ranking: 6, Strength: 89, RecentForm: 9, KeyPlayers: []string{"Bukayo Saka", "Declan Rice"}},
	"Juventus":            {Ranking: 7, Strength: 88, RecentForm: 7, KeyPlayers: []string{"Gleison Bremer"}},
	"Manchester United":   {Ranking: 8, Strength: 87, RecentForm: 7, KeyPlayers: []string{"Bruno Fernandes", "Casemiro"}},
	"Paris Saint-Germain": {Ranking: 9, Strength: 86, RecentForm: 8, KeyPlayers: []string{"Ousmane Dembele", "Vitinha"}},
	"Inter Milan":         {Ranking: 10, Strength: 85, RecentForm: 8, KeyPlayers: []string{"Lautaro Martinez"}},
	"Chelsea":             {Ranking: 11, Strength: 84, RecentForm: 7, KeyPlayers: []string{"Cole Palmer", "Moises Caicedo"}},
	"Atletico Madrid":     {Ranking: 12, Strength: 83, RecentForm: 7, KeyPlayers: []string{"Julian Alvarez"}},
	"Tottenham":           {Ranking: 13, Strength: 82, RecentForm: 7, KeyPlayers: []string{"Cristian Romero"}},
	"Borussia Dortmund":   {Ranking: 14, Strength: 81, RecentForm: 8, KeyPlayers: []string{"Karim Adeyemi", "Gregor Kobel"}},
	"Napoli":              {Ranking: 16, Strength: 79, RecentForm: 7, KeyPlayers: []string{"Matteo Politano"}},

	// NBA
	"Denver Nuggets":         {Ranking: 1, Strength: 96, RecentForm: 9, KeyPlayers: []string{"Nikola Jokic", "Jamal Murray"}},
	"Boston Celtics":         {Ranking: 2, Strength: 95, RecentForm: 9, KeyPlayers: []string{"Jayson Tatum", "Jaylen Brown"}},
	"Los Angeles Lakers":     {Ranking: 3, Strength: 94, RecentForm: 8, KeyPlayers: []string{"Luka Doncic", "LeBron James"}},
	"Golden State Warriors":  {Ranking: 4, Strength: 92, RecentForm: 8, KeyPlayers: []string{"Stephen Curry"}},
	"Phoenix Suns":           {Ranking: 5, Strength: 91, RecentForm: 8, KeyPlayers: []string{"Kevin Durant", "Devin Booker"}},
	"Miami Heat":             {Ranking: 6, Strength: 89, RecentForm: 7, KeyPlayers: []string{"Bam Adebayo", "Tyler Herro"}},
	"Dallas Mavericks":       {Ranking: 7, Strength: 88, RecentForm: 5, KeyPlayers: []string{"Kyrie Irving", "Anthony Davis"}},
	"Milwaukee Bucks":        {Ranking: 8, Strength: 87, RecentForm: 7, KeyPlayers: []string{"Giannis Antetokounmpo"}},
	"New York Knicks":        {Ranking: 9, Strength: 86, RecentForm: 7, KeyPlayers: []string{"Jalen Brunson"}},
	"Chicago Bulls":          {Ranking: 10, Strength: 85, RecentForm: 6, KeyPlayers: []string{"Coby White", "Josh Giddey"}},

	// NFL
	"Kansas City Chiefs":   {Ranking: 1, Strength: 95, RecentForm: 9, KeyPlayers: []string{"Patrick Mahomes", "Travis Kelce"}},
	"San Francisco 49ers":  {Ranking: 2, Strength: 94, RecentForm: 8, KeyPlayers: []string{"Brock Purdy", "Christian McCaffrey"}},
	"Buffalo Bills":        {Ranking: 3, Strength: 93, RecentForm: 8, KeyPlayers: []string{"Josh Allen", "James Cook"}},
	"Detroit Lions":        {Ranking: 4, Strength: 92, RecentForm: 8, KeyPlayers: []string{"Jared Goff", "Amon-Ra St. Brown"}},
	"Dallas Cowboys":       {Ranking: 5, Strength: 90, RecentForm: 7, KeyPlayers: []string{"Dak Prescott", "CeeDee Lamb"}},
	"Green Bay Packers":    {Ranking: 6, Strength: 89, RecentForm: 7, KeyPlayers: []string{"Jordan Love", "Josh Jacobs"}},
	"Miami Dolphins":       {Ranking: 8, Strength: 87, RecentForm: 8, KeyPlayers: []string{"Tua Tagovailoa", "Tyreek Hill"}},
	"Philadelphia Eagles":  {Ranking: 9, Strength: 86, RecentForm: 7, KeyPlayers: []string{"Jalen Hurts", "Saquon Barkley"}},
	"Pittsburgh Steelers":  {Ranking: 10, Strength: 85, RecentForm: 6, KeyPlayers: []string{"T.J. Watt"}},
}

func ratingFor(team string) rating {
	if r, ok := ratings[team]; ok {
		return r
	}
	return neutralRating
}
