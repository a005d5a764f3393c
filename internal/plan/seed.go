package plan

// Seed returns the built-in four-phase study plan for the Raspberry Pi 4
// YOLO optimization course. The returned slice is freshly allocated on
// every call so callers may mutate it freely.
func Seed() []Phase {
	return []Phase{
		{
			ID:          "phase1",
			Name:        "Environment Setup",
			Description: "Raspberry Pi 4 setup and Python environment preparation",
			Days:        "Day 1-2",
			Tasks: []Task{
				{
					ID:          "env-1",
					Title:       "System update and Python environment",
					Description: "Run apt update/upgrade, install Python 3 and pip",
					Category:    CategorySetup,
					Day:         "Day 1",
					CodeSnippet: "sudo apt update && sudo apt upgrade -y\n" +
						"sudo apt install -y python3-pip python3-venv git cmake build-essential\n" +
						"sudo apt install -y libopencv-dev python3-opencv",
				},
				{
					ID:          "env-2",
					Title:       "Create virtualenv and install packages",
					Description: "Set up the virtual environment for YOLO work",
					Category:    CategorySetup,
					Day:         "Day 1",
					CodeSnippet: "python3 -m venv ~/yolo_env\n" +
						"source ~/yolo_env/bin/activate\n" +
						"pip install ultralytics opencv-python pillow matplotlib pandas numpy\n" +
						"pip install deap tqdm psutil",
				},
				{
					ID:          "env-3",
					Title:       "Run system performance check",
					Description: "Verify Pi 4 performance with system_info.py",
					Category:    CategorySetup,
					Day:         "Day 2",
					CodeSnippet: "python system_info.py",
				},
			},
			Milestones: []string{
				"Base Raspberry Pi 4 setup complete",
				"Python environment and libraries installed",
				"System monitoring and temperature readings verified",
				"Basic smoke test passed",
			},
		},
		{
			ID:          "phase2",
			Name:        "YOLO Bring-up",
			Description: "Model download and baseline benchmarks",
			Days:        "Day 3-5",
			Tasks: []Task{
				{
					ID:          "yolo-1",
					Title:       "Prepare test dataset",
					Description: "Download real images and generate synthetic ones",
					Category:    CategoryYOLO,
					Day:         "Day 3",
					CodeSnippet: "python dataset_preparation.py",
				},
				{
					ID:          "yolo-2",
					Title:       "Download YOLO models",
					Description: "Fetch YOLOv8n/s and YOLOv5n/s weights",
					Category:    CategoryYOLO,
					Day:         "Day 3",
				},
				{
					ID:          "yolo-3",
					Title:       "Run benchmarks",
					Description: "Measure inference speed and accuracy per model",
					Category:    CategoryYOLO,
					Day:         "Day 4-5",
					CodeSnippet: "python yolo_basic_test.py",
				},
			},
			Milestones: []string{
				"Test dataset prepared",
				"YOLO models downloaded and verified",
				"Benchmarks run across models",
				"Pi performance characteristics understood",
			},
		},
		{
			ID:          "phase3",
			Name:        "Genetic Algorithm",
			Description: "Optimization system over still images",
			Days:        "Day 6-10",
			Tasks: []Task{
				{
					ID:          "ga-1",
					Title:       "Implement GA core",
					Description: "Individual generation, mutation, selection",
					Category:    CategoryGA,
					Day:         "Day 6-7",
				},
				{
					ID:          "ga-2",
					Title:       "Implement evaluator",
					Description: "Performance evaluation on still images",
					Category:    CategoryGA,
					Day:         "Day 8",
				},
				{
					ID:          "ga-3",
					Title:       "Run optimization",
					Description: "Drive the genetic algorithm end to end",
					Category:    CategoryGA,
					Day:         "Day 9-10",
					CodeSnippet: "python simple_ga_optimizer.py",
				},
			},
			Milestones: []string{
				"GA core implemented",
				"Optimization on still images succeeded",
				"Fitness function tuned",
				"Optimization results validated",
			},
		},
		{
			ID:          "phase4",
			Name:        "Integration and Analysis",
			Description: "Result analysis and visualization",
			Days:        "Day 11-14",
			Tasks: []Task{
				{
					ID:          "analysis-1",
					Title:       "Implement result analyzer",
					Description: "Analyze evolution logs and benchmark results",
					Category:    CategoryAnalysis,
					Day:         "Day 11-12",
					CodeSnippet: "python result_analyzer.py",
				},
				{
					ID:          "analysis-2",
					Title:       "Parameter influence analysis",
					Description: "Correlation analysis, identify optimal parameters",
					Category:    CategoryAnalysis,
					Day:         "Day 13",
				},
				{
					ID:          "analysis-3",
					Title:       "Write summary report",
					Description: "Summarize findings, prepare next steps",
					Category:    CategoryAnalysis,
					Day:         "Day 14",
				},
			},
			Milestones: []string{
				"Analysis and visualization implemented",
				"Parameter influence quantified",
				"Baseline comparison complete",
				"Summary report written",
			},
		},
	}
}
