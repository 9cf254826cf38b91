package importer

// Header vocabularies. The source tables are authored in Chinese; the
// English variants cover re-exported or translated workbooks.

type scheduleProfile struct {
	id          string
	day         string
	blockPrefix string
	name        string
	location    []string
	start       []string
	end         []string
}

func (p scheduleProfile) required() []string {
	return []string{p.id, p.day, p.blockPrefix}
}

var scheduleProfiles = []scheduleProfile{
	{
		id:          "ID",
		day:         "天数",
		blockPrefix: "时间段",
		name:        "名字",
		location:    []string{"NPC位置ID", "Npc位置ID", "NPC位置"},
		start:       []string{"起始剧情ID", "开始剧情ID", "起始剧情"},
		end:         []string{"结束剧情ID", "结束剧情"},
	},
	{
		id:          "ID",
		day:         "Day",
		blockPrefix: "Time",
		name:        "Name",
		location:    []string{"LocationID", "NPCLocationID", "Location"},
		start:       []string{"StartDialogueID", "StartDialogue"},
		end:         []string{"EndDialogueID", "EndDialogue"},
	},
}

type dialogueProfile struct {
	keywords []string
	id       string
	text     []string
	speaker  []string
	time     []string
}

func (p dialogueProfile) required() []string { return p.keywords }

var dialogueProfiles = []dialogueProfile{
	{
		keywords: []string{"ID", "文本"},
		id:       "ID",
		text:     []string{"文本", "内容"},
		speaker:  []string{"对话角色", "角色"},
		time:     []string{"时间段"},
	},
	{
		keywords: []string{"ID", "内容"},
		id:       "ID",
		text:     []string{"内容", "文本"},
		speaker:  []string{"对话角色", "角色"},
		time:     []string{"时间段"},
	},
	{
		keywords: []string{"ID", "Text"},
		id:       "ID",
		text:     []string{"Text", "Content"},
		speaker:  []string{"Speaker", "Role"},
		time:     []string{"Time"},
	},
}

type locationProfile struct {
	id    string
	note  []string
	event []string
}

func (p locationProfile) required() []string { return []string{p.id} }

var locationProfiles = []locationProfile{
	{id: "ID", note: []string{"备注", "Note"}, event: []string{"事件ID", "EventID"}},
}
