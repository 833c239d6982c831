package story

var registry = []styleDef{
	{
		style:       StyleClassic,
		key:         "classic",
		description: "A generic outline structure for all types of stories.",
		beats: []BeatDef{
			{"exposition", "Introduce the protagonist, the setting and the status quo."},
			{"rising_action", "Complications pile up as the protagonist pursues their goal."},
			{"climax", "The turning point where the central conflict comes to a head."},
			{"falling_action", "The fallout of the climax unfolds."},
			{"resolution", "Loose ends are tied up and a new normal settles in."},
		},
		new: func() Variant { return &Classic{} },
	},
	{
		style:       StyleThreeAct,
		key:         "three_act",
		description: "The traditional setup, confrontation and resolution shape most structures vary on.",
		beats: []BeatDef{
			{"act_1_exposition", "Establish the status quo."},
			{"act_1_inciting_incident", "The event that sets the story in motion."},
			{"act_1_plot_point_1", "The protagonist commits to dealing with the conflict."},
			{"act_2_rising_action", "Challenges mount and the stakes rise."},
			{"act_2_midpoint", "A reversal nearly ruins the protagonist's chances."},
			{"act_2_plot_point_2", "The protagonist fails a challenge and doubts they can succeed."},
			{"act_3_pre_climax", "The protagonist regroups for the final confrontation."},
			{"act_3_climax", "The final confrontation with the antagonist."},
			{"act_3_denouement", "Consequences are spelled out and loose ends are tied."},
		},
		new: func() Variant { return &ThreeAct{} },
	},
	{
		style:       StyleFiveAct,
		key:         "five_act",
		description: "Freytag's shape without the expectation of tragedy.",
		beats: []BeatDef{
			{"exposition", "Establish the status quo, ending with the inciting incident."},
			{"rising_action", "The protagonist pursues their goal as the stakes rise."},
			{"climax", "The point of no return at the center of the story."},
			{"falling_action", "The consequences of the climax play out."},
			{"resolution", "Everything is wrapped up, usually at the protagonist's high point."},
		},
		new: func() Variant { return &FiveAct{} },
	},
	{
		style:       StyleSevenPoint,
		key:         "seven_point",
		description: "Works backwards from the resolution through two plot turns and two pinch points.",
		beats: []BeatDef{
			{"hook", "The protagonist's starting state, opposite to the resolution."},
			{"plot_turn_1", "The call to action that moves the story forward."},
			{"pinch_point_1", "Pressure from the antagonist forces the protagonist to act."},
			{"mid_point", "The protagonist shifts from reacting to acting."},
			{"pinch_point_2", "The darkest moment; the plan fails and all seems lost."},
			{"plot_turn_2", "The protagonist finds the last piece needed to win."},
			{"resolution", "The climax and the end of the protagonist's arc."},
		},
		new: func() Variant { return &SevenPoint{} },
	},
	{
		style:       StyleFreytagsPyramid,
		key:         "freytags_pyramid",
		description: "An outline structure for tragic narratives.",
		beats: []BeatDef{
			{"exposition", "Establish the status quo, ending with the inciting incident."},
			{"rising_action", "The protagonist pursues their goal as the stakes rise."},
			{"climax", "The point of no return at the center of the story."},
			{"falling_action", "The consequences of the climax spiral out of control."},
			{"denouement", "Everything is wrapped up, often at the protagonist's lowest point."},
		},
		new: func() Variant { return &FreytagsPyramid{} },
	},
	{
		style:       StyleHerosJourney,
		key:         "heros_journey",
		description: "The hero leaves the ordinary world, is tested, and returns transformed.",
		beats: []BeatDef{
			{"the_ordinary_world", "The hero's everyday life is established."},
			{"the_call_to_adventure", "The inciting incident."},
			{"the_refusal_of_the_call", "The hero is briefly reluctant to accept the challenge."},
			{"meeting_the_mentor", "Someone prepares the hero for what lies ahead."},
			{"crossing_the_threshold", "The hero leaves their comfort zone for a new world."},
			{"tests_allies_enemies", "New challenges, new friends and new foes."},
			{"approach_to_the_inmost_cave", "The hero closes in on their goal."},
			{"the_ordeal", "The hero overcomes their greatest challenge yet."},
			{"seizing_the_sword", "The hero obtains what they were after."},
			{"the_road_back", "Reaching the goal turns out not to be the final hurdle."},
			{"resurrection", "A climactic test of everything the hero has learned."},
			{"return_with_the_elixir", "The hero returns home changed."},
		},
		new: func() Variant { return &HerosJourney{} },
	},
	{
		style:       StyleStoryCircle,
		key:         "story_circle",
		description: "A hero's journey variant focused on character development.",
		beats: []BeatDef{
			{"you", "The protagonist in their comfort zone."},
			{"need", "The protagonist wants something."},
			{"go", "They enter an unfamiliar situation."},
			{"search", "They adapt to it."},
			{"find", "They get what they wanted."},
			{"take", "They pay a heavy price for it."},
			{"returns", "They return to their familiar situation."},
			{"change", "They have changed."},
		},
		new: func() Variant { return &StoryCircle{} },
	},
	{
		style:       StyleStorySpine,
		key:         "story_spine",
		description: "A simple causal chain from status quo to lasting change.",
		beats: []BeatDef{
			{"once_upon_a_time", "The world and the protagonist before the story."},
			{"and_every_day", "The routine of the status quo."},
			{"until_one_day", "Something breaks the routine."},
			{"and_because_of_this", "The first consequence."},
			{"and_then", "Consequences build to the climax."},
			{"until_finally", "The climax resolves the conflict."},
			{"and_ever_since_that_day", "How the protagonist and their world changed."},
		},
		new: func() Variant { return &StorySpine{} },
	},
	{
		style:       StyleFichteanCurve,
		key:         "fichtean_curve",
		description: "Tension-packed mini crises that skip the ordinary world setup.",
		beats: []BeatDef{
			{"inciting_incident", "The story opens on the event that starts the conflict."},
			{"first_crisis", "The first obstacle."},
			{"second_crisis", "Stakes rise with a second obstacle."},
			{"third_crisis", "A third, harder obstacle."},
			{"fourth_crisis", "The last obstacle before the climax."},
			{"climax", "The peak of tension."},
			{"falling_action", "The aftermath and resolution."},
		},
		new: func() Variant { return &FichteanCurve{} },
	},
	{
		style:       StyleInMediasRes,
		key:         "in_medias_res",
		description: "Starts in the middle of the action and fills in the backstory later.",
		beats: []BeatDef{
			{"in_medias_res", "Open in the middle of a tense moment."},
			{"rising_action", "Conflict increases while much is still unexplained."},
			{"explanation", "Backstory reveals how the characters got here."},
			{"climax", "Everything comes together; the protagonist succeeds or fails."},
			{"falling_action", "Plot threads are addressed."},
			{"resolution", "The new normal."},
		},
		new: func() Variant { return &InMediasRes{} },
	},
	{
		style:       StyleSaveTheCat,
		key:         "save_the_cat",
		description: "A more detailed version of the three act structure.",
		beats: []BeatDef{
			{"opening_image", "A snapshot of the protagonist that sets the tone."},
			{"set_up", "Exposition of the world and the characters."},
			{"theme_stated", "The theme is made clear."},
			{"catalyst", "The inciting incident."},
			{"debate", "The protagonist argues with the path ahead."},
			{"break_into_two", "The protagonist commits to the quest."},
			{"b_story", "A secondary plot is introduced."},
			{"fun_and_games", "The protagonist enjoys the new world and abilities."},
			{"midpoint", "Everything is turned on its head."},
			{"bad_guys_close_in", "The antagonist's forces become a greater threat."},
			{"all_is_lost", "The protagonist is put under extreme duress."},
			{"dark_night_of_the_soul", "It seems all hope is lost."},
			{"break_into_three", "The protagonist rises with a key insight."},
			{"finale", "The protagonist uses what they learned to defeat the antagonist."},
			{"final_image", "A closing snapshot that mirrors the opening image."},
		},
		new: func() Variant { return &SaveTheCat{} },
	},
}

type Classic struct {
	Exposition    string `json:"exposition" yaml:"exposition" validate:"notblank"`
	RisingAction  string `json:"rising_action" yaml:"rising_action" validate:"notblank"`
	Climax        string `json:"climax" yaml:"climax" validate:"notblank"`
	FallingAction string `json:"falling_action" yaml:"falling_action" validate:"notblank"`
	Resolution    string `json:"resolution" yaml:"resolution" validate:"notblank"`
}

func (v Classic) Style() Style    { return StyleClassic }
func (v Classic) Validate() error { return check("classic structure", v) }
func (v Classic) Beats() []Beat {
	return []Beat{
		{"exposition", v.Exposition},
		{"rising_action", v.RisingAction},
		{"climax", v.Climax},
		{"falling_action", v.FallingAction},
		{"resolution", v.Resolution},
	}
}

type ThreeAct struct {
	Act1Exposition       string `json:"act_1_exposition" yaml:"act_1_exposition" validate:"notblank"`
	Act1IncitingIncident string `json:"act_1_inciting_incident" yaml:"act_1_inciting_incident" validate:"notblank"`
	Act1PlotPoint1       string `json:"act_1_plot_point_1" yaml:"act_1_plot_point_1" validate:"notblank"`
	Act2RisingAction     string `json:"act_2_rising_action" yaml:"act_2_rising_action" validate:"notblank"`
	Act2Midpoint         string `json:"act_2_midpoint" yaml:"act_2_midpoint" validate:"notblank"`
	Act2PlotPoint2       string `json:"act_2_plot_point_2" yaml:"act_2_plot_point_2" validate:"notblank"`
	Act3PreClimax        string `json:"act_3_pre_climax" yaml:"act_3_pre_climax" validate:"notblank"`
	Act3Climax           string `json:"act_3_climax" yaml:"act_3_climax" validate:"notblank"`
	Act3Denouement       string `json:"act_3_denouement" yaml:"act_3_denouement" validate:"notblank"`
}

func (v ThreeAct) Style() Style    { return StyleThreeAct }
func (v ThreeAct) Validate() error { return check("three act structure", v) }
func (v ThreeAct) Beats() []Beat {
	return []Beat{
		{"act_1_exposition", v.Act1Exposition},
		{"act_1_inciting_incident", v.Act1IncitingIncident},
		{"act_1_plot_point_1", v.Act1PlotPoint1},
		{"act_2_rising_action", v.Act2RisingAction},
		{"act_2_midpoint", v.Act2Midpoint},
		{"act_2_plot_point_2", v.Act2PlotPoint2},
		{"act_3_pre_climax", v.Act3PreClimax},
		{"act_3_climax", v.Act3Climax},
		{"act_3_denouement", v.Act3Denouement},
	}
}

type FiveAct struct {
	Exposition    string `json:"exposition" yaml:"exposition" validate:"notblank"`
	RisingAction  string `json:"rising_action" yaml:"rising_action" validate:"notblank"`
	Climax        string `json:"climax" yaml:"climax" validate:"notblank"`
	FallingAction string `json:"falling_action" yaml:"falling_action" validate:"notblank"`
	Resolution    string `json:"resolution" yaml:"resolution" validate:"notblank"`
}

func (v FiveAct) Style() Style    { return StyleFiveAct }
func (v FiveAct) Validate() error { return check("five act structure", v) }
func (v FiveAct) Beats() []Beat {
	return []Beat{
		{"exposition", v.Exposition},
		{"rising_action", v.RisingAction},
		{"climax", v.Climax},
		{"falling_action", v.FallingAction},
		{"resolution", v.Resolution},
	}
}

type SevenPoint struct {
	Hook        string `json:"hook" yaml:"hook" validate:"notblank"`
	PlotTurn1   string `json:"plot_turn_1" yaml:"plot_turn_1" validate:"notblank"`
	PinchPoint1 string `json:"pinch_point_1" yaml:"pinch_point_1" validate:"notblank"`
	MidPoint    string `json:"mid_point" yaml:"mid_point" validate:"notblank"`
	PinchPoint2 string `json:"pinch_point_2" yaml:"pinch_point_2" validate:"notblank"`
	PlotTurn2   string `json:"plot_turn_2" yaml:"plot_turn_2" validate:"notblank"`
	Resolution  string `json:"resolution" yaml:"resolution" validate:"notblank"`
}

func (v SevenPoint) Style() Style    { return StyleSevenPoint }
func (v SevenPoint) Validate() error { return check("seven point structure", v) }
func (v SevenPoint) Beats() []Beat {
	return []Beat{
		{"hook", v.Hook},
		{"plot_turn_1", v.PlotTurn1},
		{"pinch_point_1", v.PinchPoint1},
		{"mid_point", v.MidPoint},
		{"pinch_point_2", v.PinchPoint2},
		{"plot_turn_2", v.PlotTurn2},
		{"resolution", v.Resolution},
	}
}

type FreytagsPyramid struct {
	Exposition    string `json:"exposition" yaml:"exposition" validate:"notblank"`
	RisingAction  string `json:"rising_action" yaml:"rising_action" validate:"notblank"`
	Climax        string `json:"climax" yaml:"climax" validate:"notblank"`
	FallingAction string `json:"falling_action" yaml:"falling_action" validate:"notblank"`
	Denouement    string `json:"denouement" yaml:"denouement" validate:"notblank"`
}

func (v FreytagsPyramid) Style() Style    { return StyleFreytagsPyramid }
func (v FreytagsPyramid) Validate() error { return check("freytag's pyramid", v) }
func (v FreytagsPyramid) Beats() []Beat {
	return []Beat{
		{"exposition", v.Exposition},
		{"rising_action", v.RisingAction},
		{"climax", v.Climax},
		{"falling_action", v.FallingAction},
		{"denouement", v.Denouement},
	}
}

type HerosJourney struct {
	TheOrdinaryWorld        string `json:"the_ordinary_world" yaml:"the_ordinary_world" validate:"notblank"`
	TheCallToAdventure      string `json:"the_call_to_adventure" yaml:"the_call_to_adventure" validate:"notblank"`
	TheRefusalOfTheCall     string `json:"the_refusal_of_the_call" yaml:"the_refusal_of_the_call" validate:"notblank"`
	MeetingTheMentor        string `json:"meeting_the_mentor" yaml:"meeting_the_mentor" validate:"notblank"`
	CrossingTheThreshold    string `json:"crossing_the_threshold" yaml:"crossing_the_threshold" validate:"notblank"`
	TestsAlliesEnemies      string `json:"tests_allies_enemies" yaml:"tests_allies_enemies" validate:"notblank"`
	ApproachToTheInmostCave string `json:"approach_to_the_inmost_cave" yaml:"approach_to_the_inmost_cave" validate:"notblank"`
	TheOrdeal               string `json:"the_ordeal" yaml:"the_ordeal" validate:"notblank"`
	SeizingTheSword         string `json:"seizing_the_sword" yaml:"seizing_the_sword" validate:"notblank"`
	TheRoadBack             string `json:"the_road_back" yaml:"the_road_back" validate:"notblank"`
	Resurrection            string `json:"resurrection" yaml:"resurrection" validate:"notblank"`
	ReturnWithTheElixir     string `json:"return_with_the_elixir" yaml:"return_with_the_elixir" validate:"notblank"`
}

func (v HerosJourney) Style() Style    { return StyleHerosJourney }
func (v HerosJourney) Validate() error { return check("hero's journey", v) }
func (v HerosJourney) Beats() []Beat {
	return []Beat{
		{"the_ordinary_world", v.TheOrdinaryWorld},
		{"the_call_to_adventure", v.TheCallToAdventure},
		{"the_refusal_of_the_call", v.TheRefusalOfTheCall},
		{"meeting_the_mentor", v.MeetingTheMentor},
		{"crossing_the_threshold", v.CrossingTheThreshold},
		{"tests_allies_enemies", v.TestsAlliesEnemies},
		{"approach_to_the_inmost_cave", v.ApproachToTheInmostCave},
		{"the_ordeal", v.TheOrdeal},
		{"seizing_the_sword", v.SeizingTheSword},
		{"the_road_back", v.TheRoadBack},
		{"resurrection", v.Resurrection},
		{"return_with_the_elixir", v.ReturnWithTheElixir},
	}
}

type StoryCircle struct {
	You     string `json:"you" yaml:"you" validate:"notblank"`
	Need    string `json:"need" yaml:"need" validate:"notblank"`
	Go      string `json:"go" yaml:"go" validate:"notblank"`
	Search  string `json:"search" yaml:"search" validate:"notblank"`
	Find    string `json:"find" yaml:"find" validate:"notblank"`
	Take    string `json:"take" yaml:"take" validate:"notblank"`
	Returns string `json:"returns" yaml:"returns" validate:"notblank"`
	Change  string `json:"change" yaml:"change" validate:"notblank"`
}

func (v StoryCircle) Style() Style    { return StyleStoryCircle }
func (v StoryCircle) Validate() error { return check("story circle", v) }
func (v StoryCircle) Beats() []Beat {
	return []Beat{
		{"you", v.You},
		{"need", v.Need},
		{"go", v.Go},
		{"search", v.Search},
		{"find", v.Find},
		{"take", v.Take},
		{"returns", v.Returns},
		{"change", v.Change},
	}
}

type StorySpine struct {
	OnceUponATime       string `json:"once_upon_a_time" yaml:"once_upon_a_time" validate:"notblank"`
	AndEveryDay         string `json:"and_every_day" yaml:"and_every_day" validate:"notblank"`
	UntilOneDay         string `json:"until_one_day" yaml:"until_one_day" validate:"notblank"`
	AndBecauseOfThis    string `json:"and_because_of_this" yaml:"and_because_of_this" validate:"notblank"`
	AndThen             string `json:"and_then" yaml:"and_then" validate:"notblank"`
	UntilFinally        string `json:"until_finally" yaml:"until_finally" validate:"notblank"`
	AndEverSinceThatDay string `json:"and_ever_since_that_day" yaml:"and_ever_since_that_day" validate:"notblank"`
}

func (v StorySpine) Style() Style    { return StyleStorySpine }
func (v StorySpine) Validate() error { return check("story spine", v) }
func (v StorySpine) Beats() []Beat {
	return []Beat{
		{"once_upon_a_time", v.OnceUponATime},
		{"and_every_day", v.AndEveryDay},
		{"until_one_day", v.UntilOneDay},
		{"and_because_of_this", v.AndBecauseOfThis},
		{"and_then", v.AndThen},
		{"until_finally", v.UntilFinally},
		{"and_ever_since_that_day", v.AndEverSinceThatDay},
	}
}

type FichteanCurve struct {
	IncitingIncident string `json:"inciting_incident" yaml:"inciting_incident" validate:"notblank"`
	FirstCrisis      string `json:"first_crisis" yaml:"first_crisis" validate:"notblank"`
	SecondCrisis     string `json:"second_crisis" yaml:"second_crisis" validate:"notblank"`
	ThirdCrisis      string `json:"third_crisis" yaml:"third_crisis" validate:"notblank"`
	FourthCrisis     string `json:"fourth_crisis" yaml:"fourth_crisis" validate:"notblank"`
	Climax           string `json:"climax" yaml:"climax" validate:"notblank"`
	FallingAction    string `json:"falling_action" yaml:"falling_action" validate:"notblank"`
}

func (v FichteanCurve) Style() Style    { return StyleFichteanCurve }
func (v FichteanCurve) Validate() error { return check("fichtean curve", v) }
func (v FichteanCurve) Beats() []Beat {
	return []Beat{
		{"inciting_incident", v.IncitingIncident},
		{"first_crisis", v.FirstCrisis},
		{"second_crisis", v.SecondCrisis},
		{"third_crisis", v.ThirdCrisis},
		{"fourth_crisis", v.FourthCrisis},
		{"climax", v.Climax},
		{"falling_action", v.FallingAction},
	}
}

type InMediasRes struct {
	InMediasRes   string `json:"in_medias_res" yaml:"in_medias_res" validate:"notblank"`
	RisingAction  string `json:"rising_action" yaml:"rising_action" validate:"notblank"`
	Explanation   string `json:"explanation" yaml:"explanation" validate:"notblank"`
	Climax        string `json:"climax" yaml:"climax" validate:"notblank"`
	FallingAction string `json:"falling_action" yaml:"falling_action" validate:"notblank"`
	Resolution    string `json:"resolution" yaml:"resolution" validate:"notblank"`
}

func (v InMediasRes) Style() Style    { return StyleInMediasRes }
func (v InMediasRes) Validate() error { return check("in medias res", v) }
func (v InMediasRes) Beats() []Beat {
	return []Beat{
		{"in_medias_res", v.InMediasRes},
		{"rising_action", v.RisingAction},
		{"explanation", v.Explanation},
		{"climax", v.Climax},
		{"falling_action", v.FallingAction},
		{"resolution", v.Resolution},
	}
}

type SaveTheCat struct {
	OpeningImage       string `json:"opening_image" yaml:"opening_image" validate:"notblank"`
	SetUp              string `json:"set_up" yaml:"set_up" validate:"notblank"`
	ThemeStated        string `json:"theme_stated" yaml:"theme_stated" validate:"notblank"`
	Catalyst           string `json:"catalyst" yaml:"catalyst" validate:"notblank"`
	Debate             string `json:"debate" yaml:"debate" validate:"notblank"`
	BreakIntoTwo       string `json:"break_into_two" yaml:"break_into_two" validate:"notblank"`
	BStory             string `json:"b_story" yaml:"b_story" validate:"notblank"`
	FunAndGames        string `json:"fun_and_games" yaml:"fun_and_games" validate:"notblank"`
	Midpoint           string `json:"midpoint" yaml:"midpoint" validate:"notblank"`
	BadGuysCloseIn     string `json:"bad_guys_close_in" yaml:"bad_guys_close_in" validate:"notblank"`
	AllIsLost          string `json:"all_is_lost" yaml:"all_is_lost" validate:"notblank"`
	DarkNightOfTheSoul string `json:"dark_night_of_the_soul" yaml:"dark_night_of_the_soul" validate:"notblank"`
	BreakIntoThree     string `json:"break_into_three" yaml:"break_into_three" validate:"notblank"`
	Finale             string `json:"finale" yaml:"finale" validate:"notblank"`
	FinalImage         string `json:"final_image" yaml:"final_image" validate:"notblank"`
}

func (v SaveTheCat) Style() Style    { return StyleSaveTheCat }
func (v SaveTheCat) Validate() error { return check("save the cat", v) }
func (v SaveTheCat) Beats() []Beat {
	return []Beat{
		{"opening_image", v.OpeningImage},
		{"set_up", v.SetUp},
		{"theme_stated", v.ThemeStated},
		{"catalyst", v.Catalyst},
		{"debate", v.Debate},
		{"break_into_two", v.BreakIntoTwo},
		{"b_story", v.BStory},
		{"fun_and_games", v.FunAndGames},
		{"midpoint", v.Midpoint},
		{"bad_guys_close_in", v.BadGuysCloseIn},
		{"all_is_lost", v.AllIsLost},
		{"dark_night_of_the_soul", v.DarkNightOfTheSoul},
		{"break_into_three", v.BreakIntoThree},
		{"finale", v.Finale},
		{"final_image", v.FinalImage},
	}
}
