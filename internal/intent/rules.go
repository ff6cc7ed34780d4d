package intent

// defaultRules 的顺序就是匹配优先级：
// greeting, power, time, system_info, volume, app_launch, network_status,
// file_list, weather, search, youtube, ai_question。
// power 放在前面，保证关机类命令一定落到拒绝处理。
var defaultRules = []Rule{
	{Category: Greeting, Phrases: []string{
		"hello", "hi", "hey", "hiya", "howdy", "greetings",
		"good morning", "good afternoon", "good evening",
	}},
	{Category: Power, Phrases: []string{
		"shutdown", "shut down", "power off", "turn off the computer", "turn off my computer",
		"restart", "reboot", "sleep", "hibernate", "log off",
	}},
	{Category: Time, Phrases: []string{
		"what time", "whats the time", "what is the time", "current time", "tell me the time",
		"time now", "time is it", "todays date", "what is the date", "whats the date",
		"current date", "what day is it", "date today",
	}},
	{Category: SystemInfo, Phrases: []string{
		"system info", "system information", "system status", "computer info", "device info",
		"cpu", "cpu usage", "memory usage", "ram usage", "disk space", "disk usage", "how much memory",
	}},
	{Category: Volume, Phrases: []string{
		"volume", "mute", "unmute", "louder", "quieter", "sound up", "sound down",
		"turn it up", "turn it down",
	}},
	{Category: AppLaunch, Phrases: []string{
		"open", "launch", "start", "run application", "start program",
		"close", "kill", "terminate",
		"running applications", "running apps", "running programs", "running processes",
		"list applications", "list apps", "list processes", "show applications", "show apps", "show processes",
		"apps are running", "applications are running", "programs are running",
	}},
	{Category: NetworkStatus, Phrases: []string{
		"network", "network status", "wifi", "wi-fi", "internet connection", "internet status",
		"is the internet", "connected to the internet", "am i online", "ip address", "my ip", "connectivity",
	}},
	{Category: FileList, Phrases: []string{
		"list files", "show files", "list my files", "show my files", "my files",
		"list documents", "show documents", "whats on my desktop", "files on my desktop",
		"create file", "create a file", "create new file", "create a new file",
		"delete file", "delete files", "delete the file", "delete a file",
		"remove file", "remove files", "remove the file",
		"find file", "find files", "find a file", "find my file",
		"copy file", "copy files", "move file", "move files", "rename file", "edit file",
	}},
	{Category: Weather, Phrases: []string{
		"weather", "temperature", "forecast", "raining", "going to rain",
	}},
	{Category: Search, Phrases: []string{
		"search for", "search the web", "web search", "google", "look up", "find information",
		"what is", "what are", "who is", "where is", "how to", "how do", "why",
		"tell me about", "explain", "define",
	}},
	{Category: YouTube, Phrases: []string{
		"youtube", "find * video", "find * videos", "search * video", "video about", "videos about",
		"watch * video", "play * video", "video tutorial",
	}},
	{Category: AIQuestion, Phrases: []string{
		"ask ai", "ask chatgpt", "chatgpt", "chat gpt", "ask gpt", "artificial intelligence", "ai question",
	}},
}

// Rules 返回默认规则表的副本
func Rules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = Rule{Category: r.Category, Phrases: append([]string(nil), r.Phrases...)}
	}
	return out
}

// Categories 按优先级返回全部类别（末尾为 unknown）
func Categories() []Category {
	out := make([]Category, 0, len(defaultRules)+1)
	for _, r := range defaultRules {
		out = append(out, r.Category)
	}
	return append(out, Unknown)
}
