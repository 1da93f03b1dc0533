package config

func defaultKeywords() Keywords {
	return Keywords{
		Tablets: []string{
			"вылечил", "вылечен", "вылечили", "лечили", "лечил", "лечен",
			"таблетк", "таблет", "выдал", "получил", "вылечипи", "вылечипм",
			"вылечмим", "вылечмям", "еылечипи", "еылечмим", "еылечмям", "еыленмям",
			"кылечипм", "вылециям", "вылеиим", "вылечиям", "вылениям", "оглечения",
			"излечения", "излечил", "таблегк", "таблегки", "таблетик", "таблетни",
			"вылечипа", "вылечнли", "вылечнил", "еылечили", "еылечил", "леченмя",
			"печения", "печенмя", "лененмя", "купить таблет", "купивь таблет",
			"вьілечил", "вьілечили", "вілечив", "виличив", "таблетки", "табпетки",
		},
		Vaccines: []string{
			"вакцинировал", "вакцинировали", "вакцинир", "вакцин", "ваксин",
			"вакцинировамия", "вакщинировали", "вакциннровали", "вакмнровали",
			"вакынровали", "вакцинмровали", "вакцынировали", "вакцінував",
			"вакцинирован", "вакцинировап", "еакциниpовали", "еакцинировали",
			"вакц", "привив", "прививк", "привит", "шприц",
		},
		PMP: []string{
			"реанимировал", "реанимировали", "реанимир", "реаним",
			"реанімировал", "реанимировап",
		},
		PMPConfirm: []string{"750", "спасен", "спасён", "награда"},
		Reject:     []string{"транспорт", "семейный", "удалён", "секунд"},
		Refuse: []string{
			"отказался от", "оказался от", "отказал", "отказался от лечения",
			"оказался от лечения", "отказался от печения", "отказался от леченмя",
			"отказался от ленения", "отказапся от",
		},
		FuzzyTablets: []string{"вылечил", "вылечили", "вылечен", "таблетки", "таблетк", "лечили", "лечил"},
		FuzzyVaccine: []string{"вакцинировал", "вакцинировали", "вакцинир"},
		FuzzyPMP:     []string{"реанимировал", "реанимировали"},
	}
}
