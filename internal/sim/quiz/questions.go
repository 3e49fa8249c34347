package quiz

// question is a server-side quiz entry; the correct index never leaves the
// server outside the results phase
type question struct {
	Text    string
	Options []string
	Correct int
}

// bank is the built-in question set; each game draws a shuffled subset
var bank = []question{
	{"What is the largest planet in the solar system?", []string{"Earth", "Jupiter", "Saturn", "Neptune"}, 1},
	{"Which element has the chemical symbol O?", []string{"Gold", "Osmium", "Oxygen", "Oganesson"}, 2},
	{"How many continents are there?", []string{"5", "6", "7", "8"}, 2},
	{"What year did the first moon landing happen?", []string{"1965", "1969", "1972", "1959"}, 1},
	{"Which ocean is the deepest?", []string{"Atlantic", "Indian", "Arctic", "Pacific"}, 3},
	{"What is the capital of Australia?", []string{"Sydney", "Melbourne", "Canberra", "Perth"}, 2},
	{"Which animal is the fastest on land?", []string{"Cheetah", "Pronghorn", "Lion", "Greyhound"}, 0},
	{"How many strings does a standard violin have?", []string{"4", "5", "6", "7"}, 0},
	{"Which gas makes up most of Earth's atmosphere?", []string{"Oxygen", "Carbon dioxide", "Nitrogen", "Argon"}, 2},
	{"What is the smallest prime number?", []string{"0", "1", "2", "3"}, 2},
	{"Which country invented paper?", []string{"Egypt", "China", "Greece", "India"}, 1},
	{"How many bones does an adult human have?", []string{"196", "206", "216", "226"}, 1},
}
