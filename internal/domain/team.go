package domain

// TeamIcon is a symbolic icon name for a team.
type TeamIcon string

const (
	TeamIconShield    TeamIcon = "shield"
	TeamIconBolt      TeamIcon = "bolt"
	TeamIconFlame     TeamIcon = "flame"
	TeamIconRocket    TeamIcon = "rocket"
	TeamIconStar      TeamIcon = "star"
	TeamIconTarget    TeamIcon = "target"
	TeamIconCompass   TeamIcon = "compass"
	TeamIconSparkles  TeamIcon = "sparkles"
	TeamIconLaptop    TeamIcon = "laptop"
	TeamIconMessage   TeamIcon = "message"
	TeamIconEye       TeamIcon = "eye"
	TeamIconWorkflow  TeamIcon = "workflow"
	TeamIconMobile    TeamIcon = "mobile"
	TeamIconPhoneCall TeamIcon = "phone-call"
	TeamIconBook      TeamIcon = "book"
	TeamIconDatabase  TeamIcon = "database"
	TeamIconChart     TeamIcon = "chart"
)

// DefaultTeamIcon and DefaultTeamColor apply when a team row leaves them unset.
const (
	DefaultTeamIcon  = TeamIconShield
	DefaultTeamColor = "#FF7043"
)

// TeamIcons lists the accepted icon names.
var TeamIcons = []TeamIcon{
	TeamIconShield,
	TeamIconBolt,
	TeamIconFlame,
	TeamIconRocket,
	TeamIconStar,
	TeamIconTarget,
	TeamIconCompass,
	TeamIconSparkles,
	TeamIconLaptop,
	TeamIconMessage,
	TeamIconEye,
	TeamIconWorkflow,
	TeamIconMobile,
	TeamIconPhoneCall,
	TeamIconBook,
	TeamIconDatabase,
	TeamIconChart,
}

// Team represents a group tickets are routed to.
type Team struct {
	ID             string
	OrganizationID string
	Name           string
	Slug           string
	Color          string
	Icon           TeamIcon
}
